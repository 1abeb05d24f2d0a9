// Package atmosphere maps altitude and airspeed to the ambient conditions an
// engine burns under.
//
// Two models are provided: the layered 1976 US Standard Atmosphere for Earth
// and a single scale-height exponential for the other bodies.
package atmosphere
