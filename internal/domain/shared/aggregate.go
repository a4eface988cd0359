package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent `gorm:"-"`
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		domainEvents: make([]DomainEvent, 0),
	}
}

// CustomerAggregateRoot extends BaseAggregateRoot with customer ownership.
// Ownership checks on customer-facing operations compare the caller's
// identity against CustomerID.
type CustomerAggregateRoot struct {
	BaseAggregateRoot
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewCustomerAggregateRoot creates a new customer-owned aggregate root
func NewCustomerAggregateRoot(customerID uuid.UUID) CustomerAggregateRoot {
	return CustomerAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		CustomerID:        customerID,
	}
}

// IsOwnedBy reports whether the aggregate belongs to the given customer
func (c *CustomerAggregateRoot) IsOwnedBy(customerID uuid.UUID) bool {
	return c.CustomerID == customerID
}
