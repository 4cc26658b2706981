package domain

// KeyPrefix namespaces every cache key written by this service.
const KeyPrefix = "courserec:"
