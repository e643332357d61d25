// Package inbound authenticates signed queries arriving from the platform.
//
// The canonical payload order and the shared integration secret are the only
// authentication inputs; every failure collapses to one outward rejection.
package inbound
