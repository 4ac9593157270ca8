// Package nlu turns free-form chat messages into structured, confidence-scored
// intents by calling an external inference service, and defensively normalizes
// whatever comes back.
package nlu
