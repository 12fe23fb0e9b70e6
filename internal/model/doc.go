package model

// Package model defines domain data structures used across the app: courses
// and chapters as the platform returns them, download jobs and status enums,
// and the persisted history entry. Structures keep explicit state transitions
// and are safe to copy into progress events.
