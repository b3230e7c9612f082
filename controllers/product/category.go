package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name          string   `json:"name" binding:"required,max=255"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Subcategories []string `json:"subcategories"`
}

type CategorySummary struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories lists categories with the number of active products in each.
func GetCategories(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []CategorySummary
		if err := cat.cached(c.Request.Context(), categoriesKeyPrefix+"all", &out, func() error {
			var categories []models.Category
			if err := cat.DB.Order("name").Find(&categories).Error; err != nil {
				return err
			}
			type row struct {
				CategoryID uint
				Count      int64
			}
			var rows []row
			if err := cat.DB.Model(&models.Product{}).
				Select("category_id, COUNT(*) AS count").
				Where("is_active = ? AND category_id IS NOT NULL", true).
				Group("category_id").Scan(&rows).Error; err != nil {
				return err
			}
			counts := make(map[uint]int64, len(rows))
			for _, r := range rows {
				counts[r.CategoryID] = r.Count
			}
			out = make([]CategorySummary, 0, len(categories))
			for _, ct := range categories {
				out = append(out, CategorySummary{Category: ct, ProductCount: counts[ct.ID]})
			}
			return nil
		}); err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetCategory returns a category by slug.
func GetCategory(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var category models.Category
		if err := cat.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func CreateCategory(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		category := models.Category{
			Name:          strings.TrimSpace(input.Name),
			Description:   input.Description,
			Image:         input.Image,
			Subcategories: cleanImages(input.Subcategories),
		}
		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			base := Slugify(input.Slug)
			if base == "" {
				base = Slugify(category.Name)
			}
			slug, err := uniqueSlug(tx, &models.Category{}, base, 0)
			if err != nil {
				return err
			}
			category.Slug = slug
			return tx.Create(&category).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusCreated, category)
	}
}

func UpdateCategory(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "categoryID")
		if !ok {
			return
		}
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var category models.Category
		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&category, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errx.NotFound("Category not found")
				}
				return err
			}
			category.Name = strings.TrimSpace(input.Name)
			category.Description = input.Description
			category.Image = input.Image
			category.Subcategories = cleanImages(input.Subcategories)
			if input.Slug != "" {
				slug, err := uniqueSlug(tx, &models.Category{}, Slugify(input.Slug), category.ID)
				if err != nil {
					return err
				}
				category.Slug = slug
			}
			return tx.Save(&category).Error
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategory removes a category; its products become uncategorised.
func DeleteCategory(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "categoryID")
		if !ok {
			return
		}
		err := cat.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Product{}).Where("category_id = ?", id).
				Update("category_id", nil).Error; err != nil {
				return err
			}
			res := tx.Delete(&models.Category{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errx.NotFound("Category not found")
			}
			return nil
		})
		if err != nil {
			errx.Respond(c, err)
			return
		}
		cat.Invalidate(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
