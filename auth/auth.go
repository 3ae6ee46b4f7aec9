// Package auth handles registration and login for the three marketplace
// roles. Passwords are bcrypt hashed, sessions are stateless JWTs.
package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/globals"
	"agrolink/logger"
	"agrolink/middleware"
	"agrolink/models"
	"agrolink/rdx"
	"agrolink/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 12 * time.Hour

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case globals.RoleBuyer, globals.RoleFarmer, globals.RoleSupplier:
		return true
	}
	return false
}

func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		apperr.Respond(w, apperr.Validation("username, email and password are required"))
		return
	}
	if len(req.Password) < 8 {
		apperr.Respond(w, apperr.Validation("password must be at least 8 characters"))
		return
	}
	if !validRole(req.Role) {
		apperr.Respond(w, apperr.Validation("role must be buyer, farmer or supplier"))
		return
	}

	err := db.UserCollection.FindOne(r.Context(), bson.M{"username": req.Username}).Err()
	if err == nil {
		apperr.Respond(w, apperr.Conflict("username is already taken"))
		return
	} else if err != mongo.ErrNoDocuments {
		apperr.Respond(w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		apperr.Respond(w, err)
		return
	}

	now := time.Now()
	user := models.User{
		UserID:    "u" + utils.GenerateRandomString(10),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Phone:     req.Phone,
		Role:      []string{req.Role},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := db.UserCollection.InsertOne(r.Context(), user); err != nil {
		if db.IsDuplicateKeyError(err) {
			apperr.Respond(w, apperr.Conflict("username is already taken"))
			return
		}
		apperr.Respond(w, err)
		return
	}

	if err := rdx.RdxSet("users:"+user.UserID, user.Username); err != nil {
		logger.Warn("cache username", "error", err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"userid":  user.UserID,
		"role":    req.Role,
	})
}

func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Respond(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.Username == "" || req.Password == "" {
		apperr.Respond(w, apperr.Validation("username and password are required"))
		return
	}

	var stored models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"username": req.Username}).Decode(&stored); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	claims := &middleware.Claims{
		Username: stored.Username,
		UserID:   stored.UserID,
		Role:     stored.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(globals.JwtSecret)
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	if _, err := db.UserCollection.UpdateOne(r.Context(),
		bson.M{"userid": stored.UserID},
		bson.M{"$set": bson.M{"last_login": time.Now()}}); err != nil {
		logger.Warn("record last login", "error", err)
	}
	if err := rdx.RdxHset("sessions", stored.UserID, tokenString); err != nil {
		logger.Warn("cache session token", "error", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"token":   tokenString,
		"userid":  stored.UserID,
		"role":    stored.Role,
	})
}

func Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if _, err := rdx.RdxHdel("sessions", userID); err != nil {
		logger.Warn("drop session token", "error", err)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
