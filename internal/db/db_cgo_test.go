//go:build cgo

package db

import "testing"

func TestCGODriver(t *testing.T) {
	exerciseKV(t, openTestDB(t, DriverCGO))
}
