package products

import (
	"net/http"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxPageSize = 100

// GetProducts lists the catalog. Filters: ?category=, ?farmer=, ?q= (name
// substring), ?instock=true. Paged with ?limit= and ?skip=.
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	filter := bson.M{}
	if v := q.Get("category"); v != "" {
		filter["category"] = v
	}
	if v := q.Get("farmer"); v != "" {
		filter["farmerid"] = v
	}
	if v := q.Get("q"); v != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: v, Options: "i"}}
	}
	if q.Get("instock") == "true" {
		filter["instock"] = true
	}

	limit := utils.ParseInt(q.Get("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	skip := utils.ParseInt(q.Get("skip"))
	if skip < 0 {
		skip = 0
	}

	opts := options.Find().
		SetSort(bson.M{"createdat": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := db.ProductsCollection.Find(r.Context(), filter, opts)
	if err != nil {
		apperr.Respond(w, err)
		return
	}
	defer cursor.Close(r.Context())

	products := []models.Product{}
	if err := cursor.All(r.Context(), &products); err != nil {
		apperr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "products": products})
}

func GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var product models.Product
	err := db.ProductsCollection.FindOne(r.Context(), bson.M{"productid": ps.ByName("productid")}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Respond(w, apperr.Resource("product not found"))
			return
		}
		apperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "product": product})
}
