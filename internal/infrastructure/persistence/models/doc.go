// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - inventory.go: material accounts, additional vendors and ledger entries
//   - catalog.go: products and BOM lines
//   - partner.go: vendors and buyers
//   - production.go: production orders and consumption lines
//   - purchasing.go: purchase orders and their lines
//   - audit.go: persisted audit change events
//   - sequence.go: order number counters
package models
