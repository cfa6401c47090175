package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// LightBnBHandler exposes read-only LightBnB queries as MCP tools
type LightBnBHandler struct {
	service lightbnb.Service
}

// NewLightBnBHandler creates a new instance of LightBnBHandler
func NewLightBnBHandler(service lightbnb.Service) *LightBnBHandler {
	return &LightBnBHandler{service: service}
}

// RegisterTools registers the search_properties and list_reservations tools
func (h *LightBnBHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.Tool{
		Name:        "search_properties",
		Description: "Search rental properties by city, owner, nightly price range (in cents) and minimum average rating. Results are ordered by cost per night.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"city":                    map[string]any{"type": "string", "description": "Substring of the city name"},
				"owner_id":                map[string]any{"type": "integer"},
				"minimum_price_per_night": map[string]any{"type": "integer", "description": "Cents"},
				"maximum_price_per_night": map[string]any{"type": "integer", "description": "Cents"},
				"minimum_rating":          map[string]any{"type": "number"},
				"limit":                   map[string]any{"type": "integer", "description": "Defaults to 10"},
			},
		},
	}, h.handleSearchProperties)

	s.AddTool(mcp.Tool{
		Name:        "list_reservations",
		Description: "List a guest's past reservations with the reserved property and its average rating",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"guest_id": map[string]any{"type": "integer"},
				"email":    map[string]any{"type": "string", "description": "Used when guest_id is not given"},
				"limit":    map[string]any{"type": "integer", "description": "Defaults to 10"},
			},
		},
	}, h.handleListReservations)
}

func (h *LightBnBHandler) handleSearchProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var search lightbnb.PropertySearch
	search.City, _ = args["city"].(string)

	ownerID, err := intArg(args, "owner_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	search.OwnerID = int64(ownerID)
	if search.MinimumPricePerNight, err = intArg(args, "minimum_price_per_night"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if search.MaximumPricePerNight, err = intArg(args, "maximum_price_per_night"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if raw, ok := args["minimum_rating"]; ok && raw != nil {
		v, isNumber := raw.(float64)
		if !isNumber || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return mcp.NewToolResultError("minimum_rating must be a non-negative number"), nil
		}
		search.MinimumRating = v
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	properties, err := h.service.GetAllProperties(ctx, search, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"properties": properties})
}

func (h *LightBnBHandler) handleListReservations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	guestID, err := intArg(args, "guest_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if guestID == 0 {
		email, _ := args["email"].(string)
		if email == "" {
			return mcp.NewToolResultError("guest_id or email is required"), nil
		}
		user, err := h.service.GetUserWithEmail(ctx, email)
		if errors.Is(err, lightbnb.ErrUserNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no user with email %s", email)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		guestID = int(user.ID)
	}

	limit, err := intArg(args, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reservations, err := h.service.GetAllReservations(ctx, int64(guestID), limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing reservations failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"reservations": reservations})
}

// intArg reads a whole, non-negative number. JSON numbers arrive as float64.
func intArg(args map[string]any, name string) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, nil
	}
	v, ok := raw.(float64)
	if !ok || v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return int(v), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
