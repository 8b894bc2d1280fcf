// Package langdetect classifies candidate websites by the language of their
// home page.
//
// ExtractText turns an HTML document into its visible text, Detector maps
// text to an ISO 639-1 code using lingua-go, and Classifier runs both over
// a domain list with bounded concurrency, storing a model.Website for each
// success and a classify error for each failure.
package langdetect
