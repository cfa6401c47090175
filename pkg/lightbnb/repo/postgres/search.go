package postgres

import (
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/query"
)

// propertyColumns lists the properties columns in the order scanProperty
// reads them.
const propertyColumns = `properties.id, properties.owner_id, properties.title,
	COALESCE(properties.description, ''), properties.thumbnail_photo_url,
	properties.cover_photo_url, properties.cost_per_night, properties.parking_spaces,
	properties.number_of_bathrooms, properties.number_of_bedrooms, properties.country,
	properties.street, properties.city, properties.province, properties.post_code,
	properties.active`

const averageRatingColumn = `AVG(property_reviews.rating)::float8 AS average_rating`

// buildPropertySearch assembles the filtered property query. Filters are
// appended in a fixed order (city, owner, minimum price, maximum price) and
// the rating filter goes into HAVING after grouping.
func buildPropertySearch(search lightbnb.PropertySearch, limit int) (string, []interface{}, error) {
	sb := query.NewSelect(`SELECT ` + propertyColumns + `, ` + averageRatingColumn + `
	FROM properties
	JOIN property_reviews ON properties.id = property_reviews.property_id`)

	if search.City != "" {
		sb.Where("city LIKE ?", "%"+search.City+"%")
	}
	if search.OwnerID != 0 {
		sb.Where("owner_id = ?", search.OwnerID)
	}
	if search.MinimumPricePerNight != 0 {
		sb.Where("cost_per_night >= ?", search.MinimumPricePerNight)
	}
	if search.MaximumPricePerNight != 0 {
		sb.Where("cost_per_night <= ?", search.MaximumPricePerNight)
	}

	sb.GroupBy("properties.id")

	if search.MinimumRating != 0 {
		sb.Having("AVG(property_reviews.rating) >= ?", search.MinimumRating)
	}

	sb.OrderBy("cost_per_night")
	sb.Limit(lightbnb.NormalizeLimit(limit))

	return sb.Build()
}

// buildReservationHistory assembles the query for a guest's past
// reservations with the average rating of each reserved property.
func buildReservationHistory(guestID int64, limit int) (string, []interface{}, error) {
	return query.NewSelect(`SELECT reservations.id, reservations.guest_id, reservations.property_id,
	reservations.start_date, reservations.end_date, `+propertyColumns+`, `+averageRatingColumn+`
	FROM reservations
	JOIN properties ON reservations.property_id = properties.id
	JOIN property_reviews ON properties.id = property_reviews.property_id`).
		Where("reservations.guest_id = ?", guestID).
		Where("reservations.end_date < now()::date").
		GroupBy("properties.id", "reservations.id").
		OrderBy("reservations.start_date").
		Limit(lightbnb.NormalizeLimit(limit)).
		Build()
}
