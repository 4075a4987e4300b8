package id

import "github.com/google/uuid"

// UUIDGenerator issues random UUIDs for new records.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
