package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type ImportResult struct {
	Created int      `json:"created_count"`
	Updated int      `json:"updated_count"`
	Skipped int      `json:"skipped_count"`
	Errors  []string `json:"errors,omitempty"`
}

func parseBoolCell(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return def
	}
	return b
}

// ImportSheet upserts products from the first sheet. Rows are matched by ID,
// then by slug; rows with no name or an invalid price are skipped.
func ImportSheet(db *gorm.DB, sheet *xlsx.Sheet) (ImportResult, error) {
	var res ImportResult
	categoryIDs := map[string]uint{}
	var categories []models.Category
	if err := db.Select("id", "slug").Find(&categories).Error; err != nil {
		return res, err
	}
	for _, ct := range categories {
		categoryIDs[ct.Slug] = ct.ID
	}

	for i := 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}
		skip := func(reason string) {
			res.Skipped++
			res.Errors = append(res.Errors, "row "+strconv.Itoa(i+1)+": "+reason)
		}

		name := get(1)
		if name == "" {
			skip("missing name")
			continue
		}
		price, err := decimal.NewFromString(get(5))
		if err != nil || !price.IsPositive() {
			skip("invalid price")
			continue
		}
		var sale decimal.NullDecimal
		if v := get(6); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil || d.IsNegative() || d.GreaterThan(price) {
				skip("invalid sale price")
				continue
			}
			sale = nullDecimal(&d)
		}
		stock, err := strconv.Atoi(get(7))
		if err != nil || stock < 0 {
			stock = 0
		}
		var categoryID *uint
		if id, ok := categoryIDs[get(4)]; ok {
			categoryID = &id
		}
		var images []string
		if v := get(10); v != "" {
			images = strings.Split(v, ",")
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var existing models.Product
			found := false
			if id, err := strconv.ParseUint(get(0), 10, 64); err == nil && id > 0 {
				found = tx.First(&existing, id).Error == nil
			}
			if !found && get(2) != "" {
				found = tx.Where("slug = ?", Slugify(get(2))).First(&existing).Error == nil
			}

			p := existing
			p.Name = name
			p.Brand = get(3)
			p.CategoryID = categoryID
			p.Price = price
			p.SalePrice = sale
			p.Stock = stock
			p.IsActive = parseBoolCell(get(8), true)
			p.IsFeatured = parseBoolCell(get(9), false)
			p.Images = cleanImages(images)
			p.Description = get(11)
			if !found {
				base := Slugify(get(2))
				if base == "" {
					base = Slugify(name)
				}
				slug, err := uniqueSlug(tx, &models.Product{}, base, 0)
				if err != nil {
					return err
				}
				p.Slug = slug
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
				res.Created++
				return nil
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			res.Updated++
			return nil
		})
		if err != nil {
			logx.Warn().Err(err).Int("row", i+1).Msg("product import row failed")
			skip("could not be saved")
		}
	}
	return res, nil
}

func ImportProductsFromExcel(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		res, err := ImportSheet(cat.DB, xlFile.Sheets[0])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
			return
		}
		if res.Created+res.Updated > 0 {
			cat.Invalidate(c.Request.Context())
		}
		logx.Info().Int("created", res.Created).Int("updated", res.Updated).Int("skipped", res.Skipped).Msg("products imported")
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": res.Created,
			"updated_count": res.Updated,
			"skipped_count": res.Skipped,
			"errors":        res.Errors,
		})
	}
}
