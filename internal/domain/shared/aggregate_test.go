package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_Touch(t *testing.T) {
	agg := NewBaseAggregateRoot()
	assert.NotEqual(t, uuid.Nil, agg.GetID())
	assert.Equal(t, 1, agg.GetVersion())
	assert.Equal(t, agg.GetCreatedAt(), agg.GetUpdatedAt())

	agg.CreatedAt = agg.CreatedAt.Add(-time.Second)
	agg.Touch()

	assert.Equal(t, 2, agg.GetVersion())
	assert.GreaterOrEqual(t, agg.GetUpdatedAt().Sub(agg.GetCreatedAt()), time.Second)
	assert.Equal(t, time.UTC, agg.GetUpdatedAt().Location())
}

func TestBaseAggregateRoot_DomainEvents(t *testing.T) {
	agg := NewBaseAggregateRoot()
	assert.Empty(t, agg.GetDomainEvents())

	ev := NewBaseDomainEvent("PrintJobReceived", "PrintJob", agg.GetID())
	agg.AddDomainEvent(&ev)
	assert.Len(t, agg.GetDomainEvents(), 1)
	assert.Equal(t, agg.GetID(), agg.GetDomainEvents()[0].AggregateID())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.GetDomainEvents())
}

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("INVALID_STATE", "Cannot move from PENDING to COMPLETED")
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Cannot move from PENDING to COMPLETED", err.Error())
}
