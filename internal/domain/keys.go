package domain

// KeyPrefix namespaces every key this service writes to the document
// store. Overridden from config at startup.
var KeyPrefix = "shopsearch:"
