// Package apperr carries the error categories clients branch on. Every
// rejected mutation reports one of these categories so a client can tell
// "fix your input" from "not possible right now" from "try again".
package apperr

import (
	"errors"
	"net/http"

	"agrolink/utils"
)

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryConflict   Category = "conflict"
	CategoryPermission Category = "permission"
	CategoryResource   Category = "resource"
	CategoryCapacity   Category = "capacity"
	CategoryExternal   Category = "external"
)

type Error struct {
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

func New(cat Category, msg string) *Error {
	return &Error{Category: cat, Message: msg}
}

func Validation(msg string) *Error { return New(CategoryValidation, msg) }
func Conflict(msg string) *Error   { return New(CategoryConflict, msg) }
func Permission(msg string) *Error { return New(CategoryPermission, msg) }
func Resource(msg string) *Error   { return New(CategoryResource, msg) }
func Capacity(msg string) *Error   { return New(CategoryCapacity, msg) }
func External(msg string) *Error   { return New(CategoryExternal, msg) }

// HTTPStatus maps a category to its response status code.
func HTTPStatus(cat Category) int {
	switch cat {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryConflict:
		return http.StatusConflict
	case CategoryPermission:
		return http.StatusForbidden
	case CategoryResource:
		return http.StatusNotFound
	case CategoryCapacity:
		return http.StatusConflict
	case CategoryExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Respond writes err as the standard failure envelope. Unknown errors are
// reported as internal without leaking their message.
func Respond(w http.ResponseWriter, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		utils.RespondWithJSON(w, HTTPStatus(ae.Category), utils.M{
			"success":  false,
			"category": ae.Category,
			"message":  ae.Message,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{
		"success":  false,
		"category": "internal",
		"message":  "internal error",
	})
}
