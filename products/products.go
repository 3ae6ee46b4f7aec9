// Package products is the farmer-facing catalog: create and edit listings,
// upload photos, browse what is currently in stock.
package products

import (
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/filemgr"
	"agrolink/logger"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateProduct adds a listing owned by the calling farmer. The body is
// multipart so a photo can ride along with the fields.
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		apperr.Respond(w, apperr.Validation("invalid form"))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		apperr.Respond(w, apperr.Validation("name is required"))
		return
	}
	price := utils.ParseFloat(r.FormValue("price"))
	if price <= 0 {
		apperr.Respond(w, apperr.Validation("price must be positive"))
		return
	}
	stock := utils.ParseInt(r.FormValue("stock"))
	if stock < 0 {
		apperr.Respond(w, apperr.Validation("stock cannot be negative"))
		return
	}

	now := time.Now()
	product := models.Product{
		ProductID:   "p" + utils.GenerateRandomString(10),
		FarmerID:    utils.GetUserIDFromRequest(r),
		Name:        name,
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Price:       price,
		Unit:        r.FormValue("unit"),
		Stock:       stock,
		InStock:     stock > 0,
		ServiceArea: r.FormValue("serviceArea"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if filename, err := filemgr.SaveProductPhoto(r.MultipartForm, product.ProductID); err != nil {
		logger.Warn("save product photo", "productid", product.ProductID, "error", err)
	} else if filename != "" {
		product.ImagePath = filename
	}

	if _, err := db.ProductsCollection.InsertOne(r.Context(), product); err != nil {
		apperr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "product": product})
}

// EditProduct patches the fields present in the form. Only the owning
// farmer may edit, and stock edits here follow the same floor rule as
// reservations: never below zero.
func EditProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("productid")
	callerID := utils.GetUserIDFromRequest(r)

	var product models.Product
	if err := db.ProductsCollection.FindOne(r.Context(), bson.M{"productid": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Respond(w, apperr.Resource("product not found"))
			return
		}
		apperr.Respond(w, err)
		return
	}
	if product.FarmerID != callerID {
		apperr.Respond(w, apperr.Permission("only the owning farmer can edit this product"))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		apperr.Respond(w, apperr.Validation("invalid form"))
		return
	}

	update := bson.M{"updatedat": time.Now()}
	if v := r.FormValue("name"); v != "" {
		update["name"] = v
	}
	if v := r.FormValue("category"); v != "" {
		update["category"] = v
	}
	if v := r.FormValue("description"); v != "" {
		update["description"] = v
	}
	if v := r.FormValue("unit"); v != "" {
		update["unit"] = v
	}
	if v := r.FormValue("serviceArea"); v != "" {
		update["servicearea"] = v
	}
	if v := r.FormValue("price"); v != "" {
		price := utils.ParseFloat(v)
		if price <= 0 {
			apperr.Respond(w, apperr.Validation("price must be positive"))
			return
		}
		update["price"] = price
	}
	if v := r.FormValue("stock"); v != "" {
		stock := utils.ParseInt(v)
		if stock < 0 {
			apperr.Respond(w, apperr.Validation("stock cannot be negative"))
			return
		}
		update["stock"] = stock
		update["instock"] = stock > 0
	}

	if filename, err := filemgr.SaveProductPhoto(r.MultipartForm, productID); err != nil {
		logger.Warn("save product photo", "productid", productID, "error", err)
	} else if filename != "" {
		update["imagepath"] = filename
	}

	if _, err := db.ProductsCollection.UpdateOne(r.Context(),
		bson.M{"productid": productID}, bson.M{"$set": update}); err != nil {
		apperr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
