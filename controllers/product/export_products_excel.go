package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tealeg/xlsx"
)

// Column layout shared by import and export.
var excelHeaders = []string{
	"ID", "Name", "Slug", "Brand", "CategorySlug", "Price", "SalePrice",
	"Stock", "IsActive", "IsFeatured", "Images", "Description",
}

func ExportProductsToExcel(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := cat.DB.Preload("Category").Order("id").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Products")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headerRow := sheet.AddRow()
		for _, h := range excelHeaders {
			headerRow.AddCell().SetValue(h)
		}

		for _, p := range products {
			row := sheet.AddRow()
			row.AddCell().SetValue(p.ID)
			row.AddCell().SetValue(p.Name)
			row.AddCell().SetValue(p.Slug)
			row.AddCell().SetValue(p.Brand)
			categorySlug := ""
			if p.Category != nil {
				categorySlug = p.Category.Slug
			}
			row.AddCell().SetValue(categorySlug)
			row.AddCell().SetValue(p.Price.String())
			salePrice := ""
			if p.SalePrice.Valid {
				salePrice = p.SalePrice.Decimal.String()
			}
			row.AddCell().SetValue(salePrice)
			row.AddCell().SetValue(p.Stock)
			row.AddCell().SetValue(p.IsActive)
			row.AddCell().SetValue(p.IsFeatured)
			row.AddCell().SetValue(strings.Join(p.Images, ","))
			row.AddCell().SetValue(p.Description)
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
