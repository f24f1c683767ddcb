// Package harvest downloads reciter portraits from a paginated listing site.
//
// A Harvester walks the listing pages one at a time, picks the <img> tags
// whose src lives under a portrait path prefix, and saves every image it has
// not seen before into a Store under a name derived from the alt text. Files
// already present are never requested again, so a run can be repeated safely.
package harvest
