// Package domain models Solar Dynamics Observatory (SDO) imagery and the
// composite figure built from it.
//
// # Data Source
//
// Images come from the Virtual Solar Observatory (VSO), which federates the
// JSOC archive holding AIA level 1 images and HMI magnetograms. A search is a
// disjunction of [Filter] values: one for AIA over a short window (every AIA
// channel has a cadence of 12 s or 24 s) and one for the HMI line-of-sight
// magnetogram (45 s cadence, hence the wider window).
//
// # Coordinates
//
// Every [Map] carries FITS-style WCS metadata in helioprojective arcseconds:
//
//	world = CRVAL + CDELT * R(CROTA2) * (pixel + 1 - CRPIX)
//
// Pixel indices are 0-based; CRPIX follows the FITS 1-based convention. Row 0
// is the bottom of the image, as stored in FITS. Pixel scales are assumed
// square, which holds for both AIA (0.6"/px) and HMI (0.5"/px).
//
// Roll is corrected by [Map.Rotate], which resamples about the reference pixel
// so that solar north is up (CROTA2 = 0). HMI images arrive rolled by ~180°,
// AIA by a fraction of a degree.
//
// # Wavelengths
//
// Wavelengths are in ångström. The composite keys every panel by wavelength:
//
//	AIA EUV: 94, 131, 171, 193, 211, 304, 335
//	AIA UV:  1600, 1700
//	HMI:     6173 (Fe I line, LOS magnetic field)
//
// The default layout orders panels roughly by characteristic formation
// temperature, from the bottom-left edge to the top-right edge, with the
// 1700 Å full disk in the centre. See [DefaultOrder].
//
// # Layout
//
// Panel placement is an explicit [Assignment] table validated at construction:
// one wavelength per region, no duplicates. A missing map for an assigned
// wavelength is reported as [ErrMissingWavelength].
package domain
