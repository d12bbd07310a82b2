package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shokujin-wiki/shokujin-api/internal/auth"
	"github.com/shokujin-wiki/shokujin-api/internal/users"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
	"github.com/shokujin-wiki/shokujin-api/pkg/security"
)

type demoUser struct {
	Email string
	Name  string
}

type demoProduct struct {
	Name  string
	Price int64
}

type demoReview struct {
	Email   string
	Product string
	Comment string
}

var (
	demoPassword = "shokujin-demo"

	demoUsers = []demoUser{
		{Email: "taro@shokujin.example", Name: "食神太郎"},
		{Email: "hanako@shokujin.example", Name: "はなこ"},
	}

	demoProducts = []demoProduct{
		{Name: "醤油ラーメン", Price: 850},
		{Name: "味噌ラーメン", Price: 900},
		{Name: "餃子", Price: 400},
		{Name: "チャーハン", Price: 700},
	}

	demoReviews = []demoReview{
		{Email: "taro@shokujin.example", Product: "醤油ラーメン", Comment: "スープが澄んでいて最後まで飲める。"},
		{Email: "hanako@shokujin.example", Product: "醤油ラーメン", Comment: "麺が細めで好み。"},
		{Email: "hanako@shokujin.example", Product: "味噌ラーメン", Comment: "寒い日に最高。"},
		{Email: "taro@shokujin.example", Product: "餃子", Comment: "皮がパリパリ。"},
	}

	demoArticle = struct {
		Email, Title, Slug, Content, Main string
		Related                           []string
	}{
		Email:   "taro@shokujin.example",
		Title:   "ラーメン大全",
		Slug:    "ramen",
		Content: "# ラーメン大全\n\n当店のラーメンと相性のよいサイドメニューをまとめました。",
		Main:    "醤油ラーメン",
		Related: []string{"味噌ラーメン", "餃子"},
	}
)

// Seeder writes the demo data set. Every step can be re-run.
type Seeder struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

func NewSeeder(client *db.Client, passwordCfg config.PasswordConfig, logg *logger.Logger) *Seeder {
	return &Seeder{db: client, passwordCfg: passwordCfg, logg: logg}
}

// All runs every step in dependency order and reports every failure.
func (s *Seeder) All(ctx context.Context) error {
	var errs error
	for _, step := range []func(context.Context) error{s.Users, s.Products, s.Reviews, s.Articles} {
		errs = multierr.Append(errs, step(ctx))
	}
	return errs
}

// Users creates the demo identities and their users rows.
func (s *Seeder) Users(ctx context.Context) error {
	var errs error
	for _, u := range demoUsers {
		errs = multierr.Append(errs, s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return s.seedUser(ctx, tx, u)
		}))
	}
	s.info(ctx, "seed.users", len(demoUsers))
	return errs
}

func (s *Seeder) seedUser(ctx context.Context, tx *gorm.DB, u demoUser) error {
	identities := auth.NewIdentityRepository(tx)
	userRepo := users.NewRepository(tx)

	identity, err := identities.FindByEmail(ctx, u.Email)
	if db.IsNotFound(err) {
		hash, hashErr := security.HashPassword(demoPassword, s.passwordCfg)
		if hashErr != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, hashErr)
		}
		identity, err = identities.Create(ctx, u.Email, hash)
	}
	if err != nil {
		return fmt.Errorf("identity %s: %w", u.Email, err)
	}

	user, err := userRepo.Upsert(ctx, identity.AuthID)
	if err != nil {
		return fmt.Errorf("user %s: %w", u.Email, err)
	}
	if user.Name == nil {
		name := u.Name
		if err := userRepo.UpdateName(ctx, user.ID, &name); err != nil {
			return fmt.Errorf("name %s: %w", u.Email, err)
		}
	}
	return nil
}

// Products creates the demo menu items, owned by the first demo user.
func (s *Seeder) Products(ctx context.Context) error {
	owner, err := s.userByEmail(ctx, demoUsers[0].Email)
	if err != nil {
		return err
	}

	var errs error
	for _, p := range demoProducts {
		product := models.Product{Name: p.Name, Price: decimal.NewFromInt(p.Price), IsVerified: true, UserID: &owner.ID}
		err := s.db.DB().WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&product).Error
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", p.Name, err))
		}
	}
	s.info(ctx, "seed.products", len(demoProducts))
	return errs
}

// Reviews posts the demo reviews unless the same comment already exists.
func (s *Seeder) Reviews(ctx context.Context) error {
	var errs error
	for _, r := range demoReviews {
		errs = multierr.Append(errs, s.seedReview(ctx, r))
	}
	s.info(ctx, "seed.reviews", len(demoReviews))
	return errs
}

func (s *Seeder) seedReview(ctx context.Context, r demoReview) error {
	user, err := s.userByEmail(ctx, r.Email)
	if err != nil {
		return err
	}
	product, err := s.productByName(ctx, r.Product)
	if err != nil {
		return err
	}

	conn := s.db.DB().WithContext(ctx)
	var count int64
	err = conn.Model(&models.Review{}).
		Where("user_id = ? AND product_id = ? AND comment = ?", user.ID, product.ID, r.Comment).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("review lookup: %w", err)
	}
	if count > 0 {
		return nil
	}

	review := models.Review{Comment: r.Comment, ImageURLs: []string{}, UserID: user.ID, ProductID: product.ID}
	if err := conn.Create(&review).Error; err != nil {
		return fmt.Errorf("review %s/%s: %w", r.Email, r.Product, err)
	}
	return nil
}

// Articles creates the demo article with its main and related products.
func (s *Seeder) Articles(ctx context.Context) error {
	a := demoArticle
	author, err := s.userByEmail(ctx, a.Email)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		article := models.Article{Title: a.Title, Slug: a.Slug, Content: a.Content, IsPublished: true, UserID: author.ID}
		if err := tx.Where("slug = ?", a.Slug).FirstOrCreate(&article).Error; err != nil {
			return fmt.Errorf("article %s: %w", a.Slug, err)
		}

		var main models.Product
		if err := tx.Where("name = ?", a.Main).First(&main).Error; err != nil {
			return fmt.Errorf("main product %s: %w", a.Main, err)
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", main.ID).Update("main_article_id", article.ID).Error; err != nil {
			return fmt.Errorf("main product link: %w", err)
		}

		for _, name := range a.Related {
			var related models.Product
			if err := tx.Where("name = ?", name).First(&related).Error; err != nil {
				return fmt.Errorf("related product %s: %w", name, err)
			}
			link := models.ArticleProduct{ArticleID: article.ID, ProductID: related.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("related product link %s: %w", name, err)
			}
		}
		return nil
	})
	s.info(ctx, "seed.articles", 1)
	return err
}

func (s *Seeder) userByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.DB().WithContext(ctx).
		Joins("JOIN auth_identities ON auth_identities.auth_id = users.auth_id").
		Where("auth_identities.email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user %s (run seed users first): %w", email, err)
	}
	return &user, nil
}

func (s *Seeder) productByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := s.db.DB().WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, fmt.Errorf("product %s (run seed products first): %w", name, err)
	}
	return &product, nil
}

func (s *Seeder) info(ctx context.Context, msg string, count int) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "count", count), msg)
}
