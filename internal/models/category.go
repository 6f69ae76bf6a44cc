package models

import (
	"strings"

	"gorm.io/gorm"
)

// Category is a transaction category as assigned by the categorizer.
type Category struct {
	DefaultModel
	Name string `json:"name"`
	Note string `json:"note"`
}

func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)

	return nil
}
