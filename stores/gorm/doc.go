// Package gorm implements the credential store on a relational database
// through GORM, intended for Postgres in production.
//
// The fs store in stores/fs serves development and tests; both enforce
// email uniqueness at the storage layer rather than in application code.
package gorm
