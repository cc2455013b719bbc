package expr

import (
	"math"
	"time"
)

// earthRadiusM is the haversine radius §4.I specifies for geodist.
const earthRadiusM = 6_384_000

// builtins is the fixed function set §4.I names, keyed by name and arity
// (-1 means variadic, checked by the caller instead).
var builtins = map[string]int{
	"now": 0, "abs": 1, "ceil": 1, "floor": 1, "sin": 1, "cos": 1,
	"ln": 1, "log2": 1, "log10": 1, "exp": 1, "sqrt": 1, "bigint": 1,
	"min": 2, "max": 2, "pow": 2, "idiv": 2,
	"if": 3, "madd": 3, "mul3": 3,
	"interval": -1, "in": -1, "geodist": 4,
}

func callBuiltin(name string, args []float64) float64 {
	switch name {
	case "now":
		return float64(time.Now().Unix())
	case "abs":
		return math.Abs(args[0])
	case "ceil":
		return math.Ceil(args[0])
	case "floor":
		return math.Floor(args[0])
	case "sin":
		return math.Sin(args[0])
	case "cos":
		return math.Cos(args[0])
	case "ln":
		return math.Log(args[0])
	case "log2":
		return math.Log2(args[0])
	case "log10":
		return math.Log10(args[0])
	case "exp":
		return math.Exp(args[0])
	case "sqrt":
		return math.Sqrt(args[0])
	case "bigint":
		// Widens to i64 in the original type lattice; evaluation is
		// float64 throughout here, so this truncates toward zero like
		// a real int64 cast and nothing else.
		return float64(int64(args[0]))
	case "min":
		return math.Min(args[0], args[1])
	case "max":
		return math.Max(args[0], args[1])
	case "pow":
		return math.Pow(args[0], args[1])
	case "idiv":
		if int64(args[1]) == 0 {
			return 0
		}
		return float64(int64(args[0]) / int64(args[1]))
	case "if":
		if truthy(args[0]) {
			return args[1]
		}
		return args[2]
	case "madd":
		return args[0]*args[1] + args[2]
	case "mul3":
		return args[0] * args[1] * args[2]
	case "interval":
		x := args[0]
		bounds := args[1:]
		idx := 0
		for _, b := range bounds {
			if x < b {
				break
			}
			idx++
		}
		return float64(idx)
	case "in":
		x := args[0]
		for _, v := range args[1:] {
			if v == x {
				return 1
			}
		}
		return 0
	case "geodist":
		return haversine(args[0], args[1], args[2], args[3])
	default:
		return 0
	}
}

// haversine returns the great-circle distance in meters between
// (lat1,lon1) and (lat2,lon2), given in radians, matching the original's
// geodist() (§4.I).
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
