package service

import (
	"shareit/internal/domain"
	"shareit/internal/models"
)

// newPage validates the from/size pair. ok is false when the page is empty
// by construction and the store does not need to be asked.
func newPage(from, size int) (page models.Page, ok bool, err error) {
	if from < 0 {
		return models.Page{}, false, domain.InvalidState("from must not be negative")
	}
	if size <= 0 {
		return models.Page{}, false, nil
	}
	return models.NewPage(from, size), true, nil
}
