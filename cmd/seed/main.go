package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/threadline/storefront-backend/config"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("Usage: go run ./cmd/seed [-y] <catalog.xlsx>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	cat, err := readCatalog(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Products: %d\n", len(cat.Products))
	fmt.Printf("  Coupons:  %d\n", len(cat.Coupons))
	fmt.Printf("  Combos:   %d\n", len(cat.Combos))
	fmt.Printf("  Skipped rows: %d\n", len(cat.Skipped))
	for _, s := range cat.Skipped {
		fmt.Printf("    %s\n", s)
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	stats, err := importCatalog(db.GetDB(), cat)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("  Products created: %d, updated: %d\n", stats.productsCreated, stats.productsUpdated)
	fmt.Printf("  Coupons upserted: %d\n", stats.coupons)
	fmt.Printf("  Combos created: %d, updated: %d\n", stats.combosCreated, stats.combosUpdated)
}

type importStats struct {
	productsCreated int
	productsUpdated int
	coupons         int
	combosCreated   int
	combosUpdated   int
}

// importCatalog upserts the catalog in one transaction. Products match on
// slug, coupons on code and combos on name; variants and combo swatches of a
// matched row are replaced. Coupon usage counts are never touched.
func importCatalog(conn *gorm.DB, cat *catalog) (importStats, error) {
	var stats importStats
	err := conn.Transaction(func(tx *gorm.DB) error {
		for i := range cat.Products {
			created, err := upsertProduct(tx, &cat.Products[i])
			if err != nil {
				return fmt.Errorf("product %s: %w", cat.Products[i].Slug, err)
			}
			if created {
				stats.productsCreated++
			} else {
				stats.productsUpdated++
			}
		}

		for i := range cat.Coupons {
			c := &cat.Coupons[i]
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"discount_type", "discount_value", "minimum_order_cents", "maximum_discount_cents",
					"usage_limit", "is_active", "valid_from", "valid_until", "updated_at",
				}),
			}).Create(c).Error
			if err != nil {
				return fmt.Errorf("coupon %s: %w", c.Code, err)
			}
			stats.coupons++
		}

		for i := range cat.Combos {
			created, err := upsertCombo(tx, &cat.Combos[i])
			if err != nil {
				return fmt.Errorf("combo %s: %w", cat.Combos[i].Name, err)
			}
			if created {
				stats.combosCreated++
			} else {
				stats.combosUpdated++
			}
		}
		return nil
	})
	return stats, err
}

func upsertProduct(tx *gorm.DB, p *model.Product) (bool, error) {
	var existing model.Product
	err := tx.Unscoped().Where("slug = ?", p.Slug).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, tx.Create(p).Error
	}
	if err != nil {
		return false, err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductVariant{}).Error; err != nil {
		return false, err
	}
	if err := tx.Unscoped().Omit(clause.Associations).Save(p).Error; err != nil {
		return false, err
	}
	for i := range p.Variants {
		p.Variants[i].ProductID = p.ID
	}
	if len(p.Variants) > 0 {
		if err := tx.Create(&p.Variants).Error; err != nil {
			return false, err
		}
	}
	return false, nil
}

func upsertCombo(tx *gorm.DB, c *model.ComboProduct) (bool, error) {
	var existing model.ComboProduct
	err := tx.Where("LOWER(name) = LOWER(?)", c.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, tx.Create(c).Error
	}
	if err != nil {
		return false, err
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := tx.Where("combo_id = ?", c.ID).Delete(&model.ComboProductItem{}).Error; err != nil {
		return false, err
	}
	if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
		return false, err
	}
	for i := range c.Items {
		c.Items[i].ComboID = c.ID
	}
	if len(c.Items) > 0 {
		if err := tx.Create(&c.Items).Error; err != nil {
			return false, err
		}
	}
	return false, nil
}
