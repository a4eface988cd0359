package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMockCartItemRepository creates a GormCartItemRepository with a mocked SQL connection
func newMockCartItemRepository(t *testing.T) (*GormCartItemRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCartItemRepository(gormDB), mock, mockDB
}

// setupCartItemTestDB creates an in-memory SQLite database with the
// cart_items table for behavior tests
func setupCartItemTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE cart_items (
			id TEXT PRIMARY KEY,
			created_at DATETIME,
			updated_at DATETIME,
			customer_id TEXT NOT NULL,
			product_ref TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			customization TEXT,
			review_status TEXT NOT NULL DEFAULT 'pending',
			review_order_id TEXT
		)
	`).Error
	require.NoError(t, err)

	return db
}

func mustCartItem(t *testing.T, customerID uuid.UUID, productRef string, quantity int) *review.CartItem {
	t.Helper()
	item, err := review.NewCartItem(customerID, productRef, quantity, nil)
	require.NoError(t, err)
	return item
}

func TestGormCartItemRepository_FindByID_Mock(t *testing.T) {
	t.Run("finds existing item", func(t *testing.T) {
		repo, mock, mockDB := newMockCartItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		customerID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "customer_id", "product_ref", "quantity", "customization", "review_status", "review_order_id"}).
			AddRow(itemID, time.Now(), time.Now(), customerID, "hoodie-black", 2, nil, "pending", nil)

		mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, 1).
			WillReturnRows(rows)

		item, err := repo.FindByID(context.Background(), itemID)

		require.NoError(t, err)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, "hoodie-black", item.ProductRef)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing item", func(t *testing.T) {
		repo, mock, mockDB := newMockCartItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), itemID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCartItemRepository_OwnershipScope(t *testing.T) {
	db := setupCartItemTestDB(t)
	repo := NewGormCartItemRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	item := mustCartItem(t, owner, "hoodie-black", 1)
	require.NoError(t, repo.Save(ctx, item))

	t.Run("owner can read the item", func(t *testing.T) {
		found, err := repo.FindByIDForCustomer(ctx, owner, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, found.ID)
	})

	t.Run("foreign customer reads not found", func(t *testing.T) {
		_, err := repo.FindByIDForCustomer(ctx, stranger, item.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("foreign delete reads not found", func(t *testing.T) {
		err := repo.Delete(ctx, stranger, item.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCartItemRepository_FindByCustomer(t *testing.T) {
	db := setupCartItemTestDB(t)
	repo := NewGormCartItemRepository(db)
	ctx := context.Background()

	customerID := uuid.New()

	first := mustCartItem(t, customerID, "hoodie-black", 1)
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.Save(ctx, first))

	second := mustCartItem(t, customerID, "tote-natural", 3)
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	require.NoError(t, repo.Save(ctx, second))

	other := mustCartItem(t, uuid.New(), "cap-navy", 1)
	require.NoError(t, repo.Save(ctx, other))

	items, err := repo.FindByCustomer(ctx, customerID)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "hoodie-black", items[0].ProductRef)
	assert.Equal(t, "tote-natural", items[1].ProductRef)
}

func TestGormCartItemRepository_MarkSubmitted(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps back-reference and status", func(t *testing.T) {
		db := setupCartItemTestDB(t)
		repo := NewGormCartItemRepository(db)

		customerID := uuid.New()
		reviewID := uuid.New()

		item := mustCartItem(t, customerID, "hoodie-black", 1)
		require.NoError(t, repo.Save(ctx, item))

		updated, err := repo.MarkSubmitted(ctx, customerID, []uuid.UUID{item.ID}, reviewID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, review.CartReviewStatusSubmitted, found.ReviewStatus)
		require.NotNil(t, found.ReviewOrderID)
		assert.Equal(t, reviewID, *found.ReviewOrderID)
	})

	t.Run("skips items already attached to another review", func(t *testing.T) {
		db := setupCartItemTestDB(t)
		repo := NewGormCartItemRepository(db)

		customerID := uuid.New()
		firstReview := uuid.New()

		item := mustCartItem(t, customerID, "hoodie-black", 1)
		require.NoError(t, item.AttachToReview(firstReview))
		require.NoError(t, repo.Save(ctx, item))

		updated, err := repo.MarkSubmitted(ctx, customerID, []uuid.UUID{item.ID}, uuid.New())

		require.NoError(t, err)
		assert.Zero(t, updated)

		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, firstReview, *found.ReviewOrderID)
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		db := setupCartItemTestDB(t)
		repo := NewGormCartItemRepository(db)

		updated, err := repo.MarkSubmitted(ctx, uuid.New(), nil, uuid.New())

		require.NoError(t, err)
		assert.Zero(t, updated)
	})
}

func TestGormCartItemRepository_MarkApproved(t *testing.T) {
	ctx := context.Background()

	t.Run("by review back-reference", func(t *testing.T) {
		db := setupCartItemTestDB(t)
		repo := NewGormCartItemRepository(db)

		customerID := uuid.New()
		reviewID := uuid.New()

		linked := mustCartItem(t, customerID, "hoodie-black", 1)
		require.NoError(t, linked.AttachToReview(reviewID))
		require.NoError(t, repo.Save(ctx, linked))

		unlinked := mustCartItem(t, customerID, "tote-natural", 1)
		require.NoError(t, repo.Save(ctx, unlinked))

		updated, err := repo.MarkApprovedByReview(ctx, reviewID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		found, err := repo.FindByID(ctx, linked.ID)
		require.NoError(t, err)
		assert.Equal(t, review.CartReviewStatusApproved, found.ReviewStatus)

		untouched, err := repo.FindByID(ctx, unlinked.ID)
		require.NoError(t, err)
		assert.Equal(t, review.CartReviewStatusPending, untouched.ReviewStatus)
	})

	t.Run("by explicit id list", func(t *testing.T) {
		db := setupCartItemTestDB(t)
		repo := NewGormCartItemRepository(db)

		item := mustCartItem(t, uuid.New(), "hoodie-black", 1)
		require.NoError(t, repo.Save(ctx, item))

		updated, err := repo.MarkApprovedByIDs(ctx, []uuid.UUID{item.ID})

		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)
	})
}

func TestGormCartItemRepository_ClearForCustomer(t *testing.T) {
	db := setupCartItemTestDB(t)
	repo := NewGormCartItemRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, repo.Save(ctx, mustCartItem(t, customerID, "hoodie-black", 1)))
	require.NoError(t, repo.Save(ctx, mustCartItem(t, customerID, "tote-natural", 2)))

	kept := mustCartItem(t, uuid.New(), "cap-navy", 1)
	require.NoError(t, repo.Save(ctx, kept))

	require.NoError(t, repo.ClearForCustomer(ctx, customerID))

	items, err := repo.FindByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.FindByID(ctx, kept.ID)
	assert.NoError(t, err)
}
