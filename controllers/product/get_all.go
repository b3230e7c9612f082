package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/controllers/paging"
	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

const unitPriceExpr = "(CASE WHEN products.sale_price IS NOT NULL AND products.sale_price > 0 THEN products.sale_price ELSE products.price END)"

var sortColumns = map[string]string{
	"created_at": "products.created_at",
	"updated_at": "products.updated_at",
	"name":       "products.name",
	"price":      unitPriceExpr,
	"stock":      "products.stock",
}

type ProductList struct {
	Products   []models.Product   `json:"products"`
	Pagination paging.Pagination `json:"pagination"`
}

type listFilter struct {
	category string
	brand    string
	search   string
	featured *bool
	minPrice *decimal.Decimal
	maxPrice *decimal.Decimal
	sort     string
	order    string
	all      bool
}

func parseFilter(c *gin.Context, all bool) (listFilter, error) {
	f := listFilter{
		category: strings.TrimSpace(c.Query("category")),
		brand:    strings.TrimSpace(c.Query("brand")),
		search:   strings.ToLower(strings.TrimSpace(c.Query("search"))),
		sort:     c.DefaultQuery("sort_by", "created_at"),
		order:    strings.ToLower(c.DefaultQuery("order", "desc")),
		all:      all,
	}
	if _, ok := sortColumns[f.sort]; !ok {
		f.sort = "created_at"
	}
	if f.order != "asc" {
		f.order = "desc"
	}
	if v := c.Query("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errx.BadRequest("invalid featured")
		}
		f.featured = &b
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.minPrice, "max_price": &f.maxPrice} {
		if v := c.Query(name); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, errx.BadRequest("invalid " + name)
			}
			*dst = &d
		}
	}
	return f, nil
}

func (f listFilter) apply(q *gorm.DB) *gorm.DB {
	if !f.all {
		q = q.Where("products.is_active = ?", true)
	}
	if f.category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.category)
	}
	if f.brand != "" {
		q = q.Where("LOWER(products.brand) = ?", strings.ToLower(f.brand))
	}
	if f.featured != nil {
		q = q.Where("products.is_featured = ?", *f.featured)
	}
	if f.search != "" {
		like := "%" + f.search + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.brand) LIKE ? OR LOWER(products.description) LIKE ?",
			like, like, like)
	}
	if f.minPrice != nil {
		q = q.Where(unitPriceExpr+" >= ?", *f.minPrice)
	}
	if f.maxPrice != nil {
		q = q.Where(unitPriceExpr+" <= ?", *f.maxPrice)
	}
	return q
}

func (cat *Catalog) listProducts(f listFilter, pg paging.Page) (ProductList, error) {
	q := f.apply(cat.DB.Model(&models.Product{}))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ProductList{}, err
	}
	products := make([]models.Product, 0, pg.Limit)
	if err := q.Preload("Category").
		Order(sortColumns[f.sort] + " " + f.order).Order("products.id " + f.order).
		Offset(pg.Offset()).Limit(pg.Limit).
		Find(&products).Error; err != nil {
		return ProductList{}, err
	}
	return ProductList{Products: products, Pagination: pg.Result(total)}, nil
}

// GetProducts lists active products for the storefront. Results are cached
// per query string.
func GetProducts(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := parseFilter(c, false)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		pg := paging.Parse(c)

		var list ProductList
		key := productsKeyPrefix + c.Request.URL.Query().Encode()
		if err := cat.cached(c.Request.Context(), key, &list, func() error {
			var err error
			list, err = cat.listProducts(f, pg)
			return err
		}); err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetAdminProducts lists every product, inactive ones included, uncached.
func GetAdminProducts(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := parseFilter(c, true)
		if err != nil {
			errx.Respond(c, err)
			return
		}
		list, err := cat.listProducts(f, paging.Parse(c))
		if err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetBrands returns the distinct brands of active products.
func GetBrands(cat *Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var brands []string
		if err := cat.cached(c.Request.Context(), productsKeyPrefix+"brands", &brands, func() error {
			return cat.DB.Model(&models.Product{}).
				Where("is_active = ? AND brand <> ''", true).
				Distinct().Order("brand").Pluck("brand", &brands).Error
		}); err != nil {
			errx.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, brands)
	}
}
