package models

import (
	"fmt"
	"sort"
)

// UnknownFieldError is returned when a partial update names a field the
// entity does not expose
type UnknownFieldError struct {
	Entity string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown %s field %q", e.Entity, e.Field)
}

// FieldMap translates between API field names (camelCase) and storage
// column names (snake_case) for one entity. It is the only place the two
// naming schemes meet.
type FieldMap struct {
	entity   string
	toColumn map[string]string
	toField  map[string]string
}

// NewFieldMap builds a bidirectional map from field -> column pairs
func NewFieldMap(entity string, pairs map[string]string) *FieldMap {
	m := &FieldMap{
		entity:   entity,
		toColumn: make(map[string]string, len(pairs)),
		toField:  make(map[string]string, len(pairs)),
	}
	for field, column := range pairs {
		m.toColumn[field] = column
		m.toField[column] = field
	}
	return m
}

// Column returns the storage column for an API field
func (m *FieldMap) Column(field string) (string, bool) {
	c, ok := m.toColumn[field]
	return c, ok
}

// Field returns the API field for a storage column
func (m *FieldMap) Field(column string) (string, bool) {
	f, ok := m.toField[column]
	return f, ok
}

// ToColumns rewrites a field-keyed map into a column-keyed map
func (m *FieldMap) ToColumns(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for field, v := range values {
		column, ok := m.toColumn[field]
		if !ok {
			return nil, &UnknownFieldError{Entity: m.entity, Field: field}
		}
		out[column] = v
	}
	return out, nil
}

// ToFields rewrites a column-keyed map into a field-keyed map, dropping
// columns the entity does not expose
func (m *FieldMap) ToFields(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for column, v := range values {
		if field, ok := m.toField[column]; ok {
			out[field] = v
		}
	}
	return out
}

// Fields lists the API field names in sorted order
func (m *FieldMap) Fields() []string {
	fields := make([]string, 0, len(m.toColumn))
	for f := range m.toColumn {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

var (
	UserFields = NewFieldMap("user", map[string]string{
		"id":        "id",
		"authId":    "auth_id",
		"email":     "email",
		"firstName": "first_name",
		"lastName":  "last_name",
		"role":      "role",
		"avatar":    "avatar",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	})

	ServiceFields = NewFieldMap("service", map[string]string{
		"id":             "id",
		"freelancerId":   "freelancer_id",
		"title":          "title",
		"description":    "description",
		"category":       "category",
		"price":          "price",
		"deliveryTime":   "delivery_time",
		"imageUrl":       "image_url",
		"images":         "images",
		"imagesUploaded": "images_uploaded",
		"tags":           "tags",
		"isActive":       "is_active",
		"plans":          "plans",
		"faqs":           "faqs",
		"createdAt":      "created_at",
		"updatedAt":      "updated_at",
	})

	OrderFields = NewFieldMap("order", map[string]string{
		"id":           "id",
		"serviceId":    "service_id",
		"clientId":     "client_id",
		"freelancerId": "freelancer_id",
		"status":       "status",
		"requirements": "requirements",
		"deliveryDate": "delivery_date",
		"amount":       "amount",
		"version":      "version",
		"createdAt":    "created_at",
		"updatedAt":    "updated_at",
	})

	PaymentFields = NewFieldMap("payment", map[string]string{
		"id":              "id",
		"orderId":         "order_id",
		"payerId":         "payer_id",
		"receiverId":      "receiver_id",
		"amount":          "amount",
		"paymentMethod":   "payment_method",
		"status":          "status",
		"paymentIntentId": "payment_intent_id",
		"transactionId":   "transaction_id",
		"paymentDetails":  "payment_details",
		"version":         "version",
		"createdAt":       "created_at",
		"updatedAt":       "updated_at",
	})

	MessageFields = NewFieldMap("message", map[string]string{
		"id":         "id",
		"senderId":   "sender_id",
		"receiverId": "receiver_id",
		"groupId":    "group_id",
		"content":    "content",
		"isRead":     "is_read",
		"createdAt":  "created_at",
	})
)
