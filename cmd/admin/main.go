package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/lightbnb/lightbnb/internal/logging"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/config"
	"github.com/spf13/cobra"
)

type app struct {
	jsonOutput bool
	seedURL    string
	out        io.Writer

	svc     lightbnb.Service
	cleanup func()
}

func main() {
	// .env values never override variables already set
	_ = godotenv.Load()

	a := &app{out: os.Stdout}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lightbnb-admin",
		Short: "LightBnB admin CLI",
		Long: `A lightweight admin tool for LightBnB that only requires database access.

Configuration is read from the environment (and a .env file in the current
directory). Run "lightbnb-admin env" to list the variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "env" {
				return nil
			}
			return a.connect(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output as JSON")
	root.PersistentFlags().StringVar(&a.seedURL, "seed", "", "Seed the memory database from file:///dir or s3://bucket/prefix")

	root.AddCommand(a.usersCmd(), a.propertiesCmd(), a.reservationsCmd(), envCmd())
	return root
}

func (a *app) connect(ctx context.Context) error {
	opts := []config.Option{config.WithEnv()}
	if a.seedURL != "" {
		opts = append(opts, config.WithSeedURL(a.seedURL))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	if cfg.Log.Level == "info" {
		logCfg.Level = "warn"
	}
	logCfg.Format = "console"
	logging.Init(logCfg)

	a.svc, a.cleanup, err = cfg.BuildService(ctx)
	return err
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables read by the CLI",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.UsageText("LightBnB environment variables"))
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Inspect users"}
	users.AddCommand(&cobra.Command{
		Use:   "get <email|id>",
		Short: "Show a user by email or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				user *lightbnb.User
				err  error
			)
			if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
				user, err = a.svc.GetUserWithID(cmd.Context(), id)
			} else {
				user, err = a.svc.GetUserWithEmail(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(user)
			}
			w := a.table()
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			fmt.Fprintf(w, "%d\t%s\t%s\n", user.ID, user.Name, user.Email)
			return w.Flush()
		},
	})
	return users
}

func (a *app) propertiesCmd() *cobra.Command {
	properties := &cobra.Command{Use: "properties", Short: "Search and add properties"}

	var (
		search lightbnb.PropertySearch
		limit  int
	)
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search properties ordered by cost per night",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.svc.GetAllProperties(cmd.Context(), search, limit)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(results)
			}
			w := a.table()
			fmt.Fprintln(w, "ID\tTITLE\tCITY\tCOST/NIGHT\tRATING\tOWNER")
			for _, p := range results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Title, p.City, formatCents(p.CostPerNight), p.AverageRating, p.OwnerID)
			}
			return w.Flush()
		},
	}
	searchCmd.Flags().StringVar(&search.City, "city", "", "City substring")
	searchCmd.Flags().Int64Var(&search.OwnerID, "owner-id", 0, "Owner user id")
	searchCmd.Flags().IntVar(&search.MinimumPricePerNight, "min-price", 0, "Minimum cost per night in cents")
	searchCmd.Flags().IntVar(&search.MaximumPricePerNight, "max-price", 0, "Maximum cost per night in cents")
	searchCmd.Flags().Float64Var(&search.MinimumRating, "min-rating", 0, "Minimum average rating")
	searchCmd.Flags().IntVar(&limit, "limit", lightbnb.DefaultLimit, "Maximum results")

	var property lightbnb.NewProperty
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.svc.AddProperty(cmd.Context(), property)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(created)
			}
			fmt.Fprintf(a.out, "created property %d (%s)\n", created.ID, created.Title)
			return nil
		},
	}
	f := addCmd.Flags()
	f.Int64Var(&property.OwnerID, "owner-id", 0, "Owner user id")
	f.StringVar(&property.Title, "title", "", "Title")
	f.StringVar(&property.Description, "description", "", "Description")
	f.StringVar(&property.ThumbnailPhotoURL, "thumbnail-url", "", "Thumbnail photo URL")
	f.StringVar(&property.CoverPhotoURL, "cover-url", "", "Cover photo URL")
	f.IntVar(&property.CostPerNight, "cost", 0, "Cost per night in cents")
	f.IntVar(&property.ParkingSpaces, "parking", 0, "Parking spaces")
	f.IntVar(&property.NumberOfBathrooms, "bathrooms", 0, "Number of bathrooms")
	f.IntVar(&property.NumberOfBedrooms, "bedrooms", 0, "Number of bedrooms")
	f.StringVar(&property.Country, "country", "", "Country")
	f.StringVar(&property.Street, "street", "", "Street")
	f.StringVar(&property.City, "city", "", "City")
	f.StringVar(&property.Province, "province", "", "Province")
	f.StringVar(&property.PostCode, "post-code", "", "Post code")
	for _, name := range []string{"owner-id", "title", "city", "country", "street", "province", "post-code"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	properties.AddCommand(searchCmd, addCmd)
	return properties
}

func (a *app) reservationsCmd() *cobra.Command {
	reservations := &cobra.Command{Use: "reservations", Short: "Inspect reservations"}

	var (
		guestID int64
		email   string
		limit   int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a guest's past reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if guestID == 0 {
				if email == "" {
					return fmt.Errorf("--guest-id or --email is required")
				}
				user, err := a.svc.GetUserWithEmail(cmd.Context(), email)
				if err != nil {
					return err
				}
				guestID = user.ID
			}

			results, err := a.svc.GetAllReservations(cmd.Context(), guestID, limit)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(results)
			}
			w := a.table()
			fmt.Fprintln(w, "ID\tPROPERTY\tCITY\tSTART\tEND\tRATING")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n", r.ID, r.Property.Title, r.Property.City,
					r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.Property.AverageRating)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().Int64Var(&guestID, "guest-id", 0, "Guest user id")
	listCmd.Flags().StringVar(&email, "email", "", "Guest email, used when --guest-id is not set")
	listCmd.Flags().IntVar(&limit, "limit", lightbnb.DefaultLimit, "Maximum results")

	reservations.AddCommand(listCmd)
	return reservations
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatCents(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
