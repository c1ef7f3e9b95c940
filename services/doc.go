// Package services wires the auction components to their surroundings:
// durable storage for listings and the notification feed, an event sink that
// mirrors contract state into the store and fans events out to live
// subscribers, and service configuration loaded from the environment.
package services
