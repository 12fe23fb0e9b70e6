package platform

// Package platform contains OS/platform integration: filesystem helpers,
// filename sanitising, disk usage, and opening folders in the system file
// manager.
