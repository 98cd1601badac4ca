package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"taskvault/internal/service/auth"
	"taskvault/internal/store"
)

// gin context keys set by the httpserver middleware
const (
	SessionKey = "session"
	StoreKey   = "store"
)

func sessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*auth.Session)
	return s
}

func storeFrom(c *gin.Context) store.Store {
	v, ok := c.Get(StoreKey)
	if !ok {
		return nil
	}
	st, _ := v.(store.Store)
	return st
}

func listOptions(c *gin.Context) store.ListOptions {
	include, _ := strconv.ParseBool(c.Query("include_archived"))
	return store.ListOptions{IncludeArchived: include}
}
