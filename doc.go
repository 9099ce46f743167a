// Package mcver converts Minecraft version numbers between the classic
// 1.minor[.patch] naming and the year.drop[.hotfix] naming.
//
//	v, err := mcver.Parse("1.21.5")
//	if err != nil {
//	    // ErrInvalidFormat or ErrInvalidRange
//	}
//	s, err := mcver.Historical.ToDrop(v) // "25.1"
//
// Historical follows the published history. CustomAlias additionally treats
// 1.22.x as 1.21.(11+x), which gives the 25.4 drop a classic line of its own.
package mcver
