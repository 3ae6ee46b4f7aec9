package notify

import (
	"net/http"
	"time"

	"agrolink/db"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetNotifications returns the caller's inbox, newest first.
func GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	findOptions := options.Find().
		SetSort(bson.M{"createdat": -1}).
		SetLimit(50)

	cur, err := db.NotificationsCollection.Find(ctx, bson.M{"userid": userID}, findOptions)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	var notifs []models.Notification
	if err = cur.All(ctx, &notifs); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "notifications": notifs})
}

// MarkNotificationRead flags one inbox record as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	notifID := ps.ByName("notifid")

	res, err := db.NotificationsCollection.UpdateOne(ctx, bson.M{
		"notifid": notifID,
		"userid":  userID,
	}, bson.M{
		"$set": bson.M{"read": true, "readat": time.Now()},
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
