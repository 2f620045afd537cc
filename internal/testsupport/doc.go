// Package testsupport holds helpers shared by package tests: temp-dir backed
// configs, sized fixture files, and child processes that hold files open.
package testsupport
