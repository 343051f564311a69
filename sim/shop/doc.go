// Package shop implements the in-game economy: a catalog of one-time server
// slots and repeatable upgrades, geometric price curves, and the absolute
// effect formulas that turn an upgrade level into a parameter value.
//
// The package is pure bookkeeping. It never touches the simulation; the game
// controller reads a Receipt and applies the effect itself.
package shop
