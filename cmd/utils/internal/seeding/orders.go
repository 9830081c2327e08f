package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeedOrders creates demo orders covering the kitchen queue (pending and
// preparing) and a few finished orders for the tracking timeline. All demo
// orders carry the ORD-DEMO number prefix so clear-demo can find them.
func SeedOrders(ctx context.Context, db *mongo.Database) error {
	ordersCollection := db.Collection("orders")
	now := time.Now()

	type demoItem struct {
		name        string
		variant     string
		quantity    int
		unitPrice   float64
		prepMinutes int
	}

	type demoOrder struct {
		number    string
		status    string
		orderType string
		table     string
		room      string
		customer  string
		placedAgo time.Duration
		preparing bool
		ready     bool
		served    bool
		items     []demoItem
	}

	demos := []demoOrder{
		{
			number: "ORD-DEMO-0001", status: "pending", orderType: "dine-in", table: "T4",
			customer: "Walk-in", placedAgo: 3 * time.Minute,
			items: []demoItem{
				{name: "Masala Dosa", quantity: 2, unitPrice: 120, prepMinutes: 12},
				{name: "Filter Coffee", quantity: 2, unitPrice: 40, prepMinutes: 5},
			},
		},
		{
			number: "ORD-DEMO-0002", status: "preparing", orderType: "room-service", room: "204",
			customer: "Asha Nair", placedAgo: 12 * time.Minute, preparing: true,
			items: []demoItem{
				{name: "Club Sandwich", variant: "no onion", quantity: 1, unitPrice: 240, prepMinutes: 15},
				{name: "Fresh Lime Soda", quantity: 2, unitPrice: 80, prepMinutes: 5},
			},
		},
		{
			number: "ORD-DEMO-0003", status: "preparing", orderType: "takeaway",
			customer: "Ravi Kumar", placedAgo: 18 * time.Minute, preparing: true,
			items: []demoItem{
				{name: "Dum Biryani", quantity: 2, unitPrice: 260, prepMinutes: 25},
				{name: "Raita", quantity: 2, unitPrice: 50, prepMinutes: 5},
			},
		},
		{
			number: "ORD-DEMO-0004", status: "ready", orderType: "delivery",
			customer: "Meera Iyer", placedAgo: 35 * time.Minute, preparing: true, ready: true,
			items: []demoItem{
				{name: "Veg Thali", quantity: 1, unitPrice: 180, prepMinutes: 15},
			},
		},
		{
			number: "ORD-DEMO-0005", status: "served", orderType: "dine-in", table: "T1",
			customer: "Walk-in", placedAgo: 90 * time.Minute, preparing: true, ready: true, served: true,
			items: []demoItem{
				{name: "Paneer Tikka", quantity: 1, unitPrice: 220, prepMinutes: 18},
				{name: "Garlic Naan", quantity: 4, unitPrice: 60, prepMinutes: 8},
			},
		},
		{
			number: "ORD-DEMO-0006", status: "cancelled", orderType: "takeaway",
			customer: "No-name", placedAgo: 2 * time.Hour,
			items: []demoItem{
				{name: "Gulab Jamun", quantity: 4, unitPrice: 45, prepMinutes: 5},
			},
		},
	}

	for _, demo := range demos {
		placedAt := now.Add(-demo.placedAgo)

		var items []bson.M
		var subtotal float64
		for _, item := range demo.items {
			lineSubtotal := float64(item.quantity) * item.unitPrice
			subtotal += lineSubtotal
			doc := bson.M{
				"name":       item.name,
				"quantity":   item.quantity,
				"unit_price": item.unitPrice,
				"subtotal":   lineSubtotal,
			}
			if item.variant != "" {
				doc["variant"] = item.variant
			}
			if item.prepMinutes > 0 {
				doc["prep_minutes"] = item.prepMinutes
			}
			items = append(items, doc)
		}

		tax := subtotal * 5 / 100
		order := bson.M{
			"_id":          uuid.New(),
			"order_number": demo.number,
			"status":       demo.status,
			"order_type":   demo.orderType,
			"items":        items,
			"pricing": bson.M{
				"subtotal": subtotal,
				"tax":      tax,
				"discount": 0.0,
				"total":    subtotal + tax,
			},
			"placed_at":  placedAt,
			"created_at": placedAt,
			"updated_at": placedAt,
		}
		if demo.table != "" {
			order["table_number"] = demo.table
		}
		if demo.room != "" {
			order["room_number"] = demo.room
		}
		if demo.customer != "" {
			order["customer_name"] = demo.customer
		}
		if demo.preparing {
			order["preparing_at"] = placedAt.Add(2 * time.Minute)
		}
		if demo.ready {
			order["ready_at"] = placedAt.Add(20 * time.Minute)
		}
		if demo.served {
			order["served_at"] = placedAt.Add(30 * time.Minute)
		}

		_, err := ordersCollection.UpdateOne(
			ctx,
			bson.M{"order_number": demo.number},
			bson.M{"$setOnInsert": order},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("cannot create demo order %s: %w", demo.number, err)
		}
	}

	return nil
}
