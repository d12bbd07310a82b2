// Package dbtest opens in-memory sqlite databases carrying the same tables as
// the goose migrations, for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE auth_identities (
  auth_id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  auth_id TEXT NOT NULL UNIQUE,
  name TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE articles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  content TEXT NOT NULL,
  is_published INTEGER NOT NULL DEFAULT 1,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL DEFAULT 0,
  is_verified INTEGER NOT NULL DEFAULT 0,
  user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
  updated_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
  main_article_id INTEGER REFERENCES articles(id) ON DELETE SET NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE reviews (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  comment TEXT NOT NULL,
  image_urls TEXT NOT NULL DEFAULT '{}',
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE article_products (
  article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  PRIMARY KEY (article_id, product_id)
);`,
	`CREATE TABLE eats (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  comment TEXT NOT NULL,
  image_urls TEXT NOT NULL DEFAULT '{}',
  product_id INTEGER REFERENCES products(id) ON DELETE SET NULL,
  product_name_snapshot TEXT NOT NULL,
  created_by INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE options (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  is_verified INTEGER NOT NULL DEFAULT 0,
  created_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
  created_at DATETIME
);`,
	`CREATE TABLE eat_options (
  eat_id INTEGER NOT NULL REFERENCES eats(id) ON DELETE CASCADE,
  option_id INTEGER NOT NULL REFERENCES options(id) ON DELETE CASCADE,
  option_name_snapshot TEXT NOT NULL,
  PRIMARY KEY (eat_id, option_id)
);`,
}

// Open returns a fresh database with foreign keys enforced. A single
// connection is used so transactions behave like they do on Postgres.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// Client wraps Open in a db.Client for code that needs WithTx.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.FromGorm(conn), conn
}

// CreateUser inserts a user with an optional display name.
func CreateUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{AuthID: uuid.New()}
	if name != "" {
		user.Name = &name
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// CreateProduct inserts a product owned by userID.
func CreateProduct(t *testing.T, conn *gorm.DB, name string, price int64, userID int64) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: decimal.NewFromInt(price), UserID: &userID}
	require.NoError(t, conn.Create(product).Error)
	return product
}

// CreateReview inserts a review with the given images.
func CreateReview(t *testing.T, conn *gorm.DB, userID, productID int64, comment string, images ...string) *models.Review {
	t.Helper()
	review := &models.Review{Comment: comment, ImageURLs: append([]string{}, images...), UserID: userID, ProductID: productID}
	require.NoError(t, conn.Create(review).Error)
	return review
}

// CreateArticle inserts a published article.
func CreateArticle(t *testing.T, conn *gorm.DB, userID int64, title, slug string) *models.Article {
	t.Helper()
	article := &models.Article{Title: title, Slug: slug, Content: "# " + title, IsPublished: true, UserID: userID}
	require.NoError(t, conn.Create(article).Error)
	return article
}
