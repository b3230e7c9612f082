// Package seed loads the starter catalog: the shop's categories and a set of
// products to browse in a fresh database.
package seed

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type category struct {
	name          string
	slug          string
	description   string
	subcategories []string
}

type product struct {
	name     string
	slug     string
	price    int64
	sale     int64
	brand    string
	stock    int
	category string
	featured bool
}

var categories = []category{
	{"Vợt cầu lông", "vot", "Các loại vợt cầu lông chính hãng", []string{"Vợt cầu lông Lining", "Vợt cầu lông Yonex", "Vợt cầu lông Kumpoo", "Vợt cầu lông Victor", "Vợt cầu lông Mizuno", "Vợt cầu lông VS", "Vợt cầu lông Wsport"}},
	{"Giày thể thao", "giay", "Giày cầu lông chuyên dụng", []string{"Giày cầu lông Kawasaki", "Giày cầu lông Kumpo", "Giày cầu lông Lining", "Giày cầu lông Mizuno", "Giày cầu lông Victor", "Giày cầu lông Yonex"}},
	{"Áo cầu lông", "ao", "Áo thể thao cầu lông", []string{"Áo cầu lông Lining", "Áo cầu lông Yonex", "Áo cầu lông Victor", "Áo cầu lông Coolmax 1", "Áo cầu lông Coolmax 2"}},
	{"Balo cầu lông", "balo", "Balo và túi đựng vợt", []string{"Balo Victor", "Balo Yonex", "Balo Lining"}},
	{"Phụ kiện", "phukien", "Phụ kiện cầu lông", []string{"Dây căng vợt", "Hộp Cầu lông", "Cuốn cán", "Băng chặn mồ hôi"}},
	{"Máy căng vợt", "may", "Máy căng dây vợt", []string{"Việt Nam", "Nhật Bản", "Trung Quốc", "Hoa Kỳ"}},
}

var products = []product{
	{"Vợt Yonex Astrox 99 Pro", "vot-yonex-astrox-99-pro", 4500000, 3900000, "Yonex", 15, "vot", true},
	{"Vợt Yonex Nanoflare 800", "vot-yonex-nanoflare-800", 3800000, 0, "Yonex", 10, "vot", true},
	{"Vợt Victor Thruster Ryuga II", "vot-victor-thruster-ryuga-ii", 3600000, 0, "Victor", 8, "vot", true},
	{"Vợt Lining Aeronaut 9000C", "vot-lining-aeronaut-9000c", 3200000, 2800000, "Lining", 12, "vot", false},
	{"Vợt Kumpoo Power Control K520", "vot-kumpoo-power-control-k520", 1800000, 0, "Kumpoo", 20, "vot", false},
	{"Giày Yonex Power Cushion 65Z3", "giay-yonex-power-cushion-65z3", 3200000, 0, "Yonex", 15, "giay", true},
	{"Giày Victor A960", "giay-victor-a960", 2800000, 2400000, "Victor", 10, "giay", false},
	{"Giày Lining Ranger TD", "giay-lining-ranger-td", 2200000, 0, "Lining", 18, "giay", false},
	{"Giày Mizuno Wave Claw Neo", "giay-mizuno-wave-claw-neo", 3500000, 0, "Mizuno", 6, "giay", false},
	{"Áo Yonex 10512", "ao-yonex-10512", 850000, 0, "Yonex", 30, "ao", false},
	{"Áo Lining AAYR381", "ao-lining-aayr381", 650000, 550000, "Lining", 25, "ao", false},
	{"Áo Victor T-40010", "ao-victor-t-40010", 720000, 0, "Victor", 22, "ao", false},
	{"Balo Yonex BA92212", "balo-yonex-ba92212", 1800000, 0, "Yonex", 8, "balo", false},
	{"Balo Victor BR9008", "balo-victor-br9008", 1200000, 0, "Victor", 12, "balo", false},
	{"Cuốn cán Yonex AC102", "cuon-can-yonex-ac102", 50000, 0, "Yonex", 100, "phukien", false},
	{"Dây căng vợt BG65", "day-cang-vot-bg65", 120000, 0, "Yonex", 50, "phukien", false},
	{"Máy căng vợt Pro's Pro Professional", "may-cang-vot-pros-pro-professional", 12500000, 0, "Pro's Pro", 2, "may", false},
}

type Result struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
}

// Run inserts the starter catalog. Rows are keyed by slug and existing ones
// are left untouched, so running it again only adds what is missing.
func Run(ctx context.Context, db *gorm.DB) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(categories))
		for _, c := range categories {
			row := models.Category{
				Name:          c.name,
				Slug:          c.slug,
				Description:   c.description,
				Subcategories: datatypes.JSONSlice[string](c.subcategories),
			}
			created := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&row)
			if created.Error != nil {
				return created.Error
			}
			res.Categories += int(created.RowsAffected)
			var existing models.Category
			if err := tx.Select("id").Where("slug = ?", c.slug).First(&existing).Error; err != nil {
				return err
			}
			ids[c.slug] = existing.ID
		}

		for _, p := range products {
			categoryID := ids[p.category]
			row := models.Product{
				Name:        p.name,
				Slug:        p.slug,
				Description: p.name + " - Sản phẩm chính hãng, bảo hành 12 tháng",
				Price:       decimal.NewFromInt(p.price),
				Stock:       p.stock,
				Brand:       p.brand,
				Images:      datatypes.JSONSlice[string]{"/images/products/" + p.slug + ".jpg"},
				IsActive:    true,
				IsFeatured:  p.featured,
				CategoryID:  &categoryID,
			}
			if p.sale > 0 {
				row.SalePrice = decimal.NewNullDecimal(decimal.NewFromInt(p.sale))
			}
			created := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&row)
			if created.Error != nil {
				return created.Error
			}
			res.Products += int(created.RowsAffected)
		}
		return nil
	})
	return res, err
}
