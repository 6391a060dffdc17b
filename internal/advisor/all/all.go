// Package all imports every rule package to register them.
// Import this package with a blank identifier to enable all rules:
//
//	import _ "github.com/wharflab/stagewise/internal/advisor/all"
package all

import (
	// Import all rule packages to trigger their init() registration
	_ "github.com/wharflab/stagewise/internal/advisor/baseimageswap"
	_ "github.com/wharflab/stagewise/internal/advisor/multistage"
	_ "github.com/wharflab/stagewise/internal/advisor/serverswap"
	_ "github.com/wharflab/stagewise/internal/advisor/unusedcopy"
)
