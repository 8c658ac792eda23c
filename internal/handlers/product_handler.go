package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Lot ids start above this seed so they never collide with historical
// batch numbers from the old ledger.
const lotIDSeed = 1401

// --- GET: List all products (public storefront) ---
func GetProducts(c *gin.Context) {
	var products []models.Product

	result := database.DB.Find(&products)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// --- POST: Add a new product (admin) ---
// The lot id is assigned HERE, inside a locking transaction, instead of
// being computed on the client from a stale product list. Two admins
// adding products at the same moment can no longer mint the same lot.
func AddProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	var product models.Product

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// 1. Take the current maximum lot id under a row lock
		var maxLotID int64
		err := database.LockForUpdate(tx.Model(&models.Product{})).
			Select("COALESCE(MAX(lot_id), ?)", lotIDSeed).
			Scan(&maxLotID).Error
		if err != nil {
			return err
		}

		// 2. Create the product with the next lot id
		product = models.Product{
			LotID:       maxLotID + 1,
			Name:        req.Name,
			Price:       req.Price,
			Description: req.Description,
			Image:       req.Image,
		}
		return tx.Create(&product).Error
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// --- PUT: Update a product (admin) ---
func UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	// 2. Find existing product
	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// 3. Update fields based on JSON input
	// We use a map so we only update what was sent (partial update)
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// The lot id is immutable once assigned - promotions and coupons
	// point at it
	delete(updateData, "lot_id")
	delete(updateData, "id")

	// 4. Save updates
	if err := database.DB.Model(&product).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Remove a product (admin) ---
// Promotions and coupons referencing the lot are left alone: the
// resolver simply stops matching them, and any bundle that loses a
// constituent drops off the storefront.
func DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	if err := database.DB.Delete(&models.Product{}, id).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- UPLOAD: Handle Image Files (admin) ---
func UploadImage(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Generate a safe unique filename
	// e.g., "167890123_churna.jpg"
	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), file.Filename)
	filepath := "./uploads/" + filename

	// 3. Save the file to the 'uploads' folder
	if err := c.SaveUploadedFile(file, filepath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// Get the Base URL from .env (e.g., http://localhost:8080 or https://your-site.com)
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	fullURL := baseURL + "/uploads/" + filename
	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     fullURL,
	})
}
