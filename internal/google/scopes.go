package google

import drive "google.golang.org/api/drive/v3"

// DriveScope grants read and write access to all of the user's Drive files.
const DriveScope = drive.DriveScope

// DriveReadOnlyScope grants read access to the user's Drive files.
const DriveReadOnlyScope = drive.DriveReadonlyScope

// Scopes returns the OAuth scopes needed for the given access mode.
func Scopes(readOnly bool) []string {
	if readOnly {
		return []string{DriveReadOnlyScope}
	}
	return []string{DriveScope}
}
