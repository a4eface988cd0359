package review

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartItem(t *testing.T) {
	t.Run("creates pending catalog item", func(t *testing.T) {
		customerID := uuid.New()
		item, err := NewCartItem(customerID, "prod-17", 2, nil)
		require.NoError(t, err)

		assert.Equal(t, customerID, item.CustomerID)
		assert.Equal(t, CartReviewStatusPending, item.ReviewStatus)
		assert.Nil(t, item.ReviewOrderID)
		assert.False(t, item.IsCustom())
	})

	t.Run("creates custom item with payload", func(t *testing.T) {
		payload := Customization(`{"text":"Mom","image":"data:image/png;base64,xyz"}`)
		item, err := NewCartItem(uuid.New(), CustomProductRef, 1, payload)
		require.NoError(t, err)
		assert.True(t, item.IsCustom())
	})

	t.Run("rejects custom item without payload", func(t *testing.T) {
		_, err := NewCartItem(uuid.New(), CustomProductRef, 1, nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewCartItem(uuid.Nil, "prod-1", 1, nil)
		assert.Error(t, err)
		_, err = NewCartItem(uuid.New(), "", 1, nil)
		assert.Error(t, err)
		_, err = NewCartItem(uuid.New(), "prod-1", 0, nil)
		assert.Error(t, err)
	})
}

func TestCartItem_AttachToReview(t *testing.T) {
	t.Run("sets back-reference once", func(t *testing.T) {
		item, err := NewCartItem(uuid.New(), "prod-1", 1, nil)
		require.NoError(t, err)

		reviewID := uuid.New()
		require.NoError(t, item.AttachToReview(reviewID))
		assert.Equal(t, CartReviewStatusSubmitted, item.ReviewStatus)
		require.NotNil(t, item.ReviewOrderID)
		assert.Equal(t, reviewID, *item.ReviewOrderID)
	})

	t.Run("back-reference is never reassigned", func(t *testing.T) {
		item, err := NewCartItem(uuid.New(), "prod-1", 1, nil)
		require.NoError(t, err)

		first := uuid.New()
		require.NoError(t, item.AttachToReview(first))
		err = item.AttachToReview(uuid.New())
		assert.Error(t, err)
		assert.Equal(t, first, *item.ReviewOrderID)
	})

	t.Run("rejects nil review id", func(t *testing.T) {
		item, err := NewCartItem(uuid.New(), "prod-1", 1, nil)
		require.NoError(t, err)
		assert.Error(t, item.AttachToReview(uuid.Nil))
	})
}

func TestCartItem_Updates(t *testing.T) {
	t.Run("quantity edit after submission leaves review linkage intact", func(t *testing.T) {
		item, err := NewCartItem(uuid.New(), "prod-1", 1, nil)
		require.NoError(t, err)
		require.NoError(t, item.AttachToReview(uuid.New()))

		require.NoError(t, item.UpdateQuantity(5))
		assert.Equal(t, 5, item.Quantity)
		assert.Equal(t, CartReviewStatusSubmitted, item.ReviewStatus)
		assert.NotNil(t, item.ReviewOrderID)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		item, err := NewCartItem(uuid.New(), "prod-1", 1, nil)
		require.NoError(t, err)
		assert.Error(t, item.UpdateQuantity(0))
		assert.Error(t, item.UpdateQuantity(-3))
	})
}

func TestCustomization_JSONRoundtrip(t *testing.T) {
	payload := Customization(`{"text":"Dad","placement":"left-chest"}`)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(data))

	var decoded Customization
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.JSONEq(t, string(payload), string(decoded))

	val, err := payload.Value()
	require.NoError(t, err)
	var scanned Customization
	require.NoError(t, scanned.Scan(val))
	assert.JSONEq(t, string(payload), string(scanned))
}
