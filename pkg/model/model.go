// Package model holds the persisted resources.
package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	CollectionUsers      = "users"
	CollectionProducts   = "products"
	CollectionOrders     = "orders"
	CollectionCategories = "categories"
)

// Category groups products. Products reference it, they never own it.
type Category struct {
	ID   primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name string             `json:"name" bson:"name" binding:"required"`
}

// Product is a sellable item with a weak reference to its category.
type Product struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name" binding:"required"`
	Price      float64            `json:"price" bson:"price" binding:"gte=0"`
	CategoryID primitive.ObjectID `json:"categoryId" bson:"category"`
	// Category is filled by a populate join and never persisted.
	Category *Category `json:"category,omitempty" bson:"-"`
}

// Order is a placed order. Products hold the snapshots resolved at creation time.
type Order struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	OrderedAt time.Time          `json:"orderedAt" bson:"orderedAt"`
	Products  []Product          `json:"products" bson:"products"`
}

// NewOrder is the input for placing an order: product ids to resolve.
type NewOrder struct {
	UserID    string    `json:"-"`
	OrderedAt time.Time `json:"orderedAt"`
	Products  []string  `json:"products" binding:"required,min=1,dive,required"`
}

// User is an account. Password holds a one-way digest, never the plaintext.
type User struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username    string             `json:"username" bson:"username"`
	Email       string             `json:"email" bson:"email"`
	Role        string             `json:"role" bson:"role"`
	Password    string             `json:"-" bson:"password"`
	TimeCreated time.Time          `json:"timeCreated" bson:"timeCreated"`
}

// RankedProduct is a product with the number of times it was ordered.
type RankedProduct struct {
	Product
	TimesOrdered int64 `json:"timesOrdered"`
}

// ProductCount is one row of the order aggregation.
type ProductCount struct {
	ProductID primitive.ObjectID `bson:"_id"`
	Count     int64              `bson:"count"`
}

// MaxPasswordBytes is the longest password bcrypt can digest.
const MaxPasswordBytes = 72

// ErrPasswordTooLong rejects a password longer than MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// Registration is the public sign-up input.
type Registration struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserPatch is a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
}

// Updates returns the bson field updates carried by the patch.
func (p UserPatch) Updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Username != nil {
		out["username"] = *p.Username
	}
	if p.Email != nil {
		out["email"] = *p.Email
	}
	if p.Password != nil {
		out["password"] = *p.Password
	}
	if p.Role != nil {
		out["role"] = *p.Role
	}
	return out
}

// ProductPatch is a partial product update.
type ProductPatch struct {
	Name       *string             `json:"name"`
	Price      *float64            `json:"price" binding:"omitempty,gte=0"`
	CategoryID *primitive.ObjectID `json:"categoryId"`
}

func (p ProductPatch) Updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.CategoryID != nil {
		out["category"] = *p.CategoryID
	}
	return out
}

// CategoryPatch is a partial category update.
type CategoryPatch struct {
	Name *string `json:"name"`
}

func (p CategoryPatch) Updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	return out
}
