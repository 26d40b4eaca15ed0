// Package testsupport holds fixture and golden file helpers shared by package
// tests. Goldens are rewritten when UPDATE_GOLDENS is set.
package testsupport
