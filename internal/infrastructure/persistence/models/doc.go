// Package models contains the GORM persistence models. They are kept apart
// from the domain entities so that the domain layer stays free of ORM tags;
// mappers convert between the two.
package models
