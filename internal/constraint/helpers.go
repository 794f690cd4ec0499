package constraint

import (
	"reflect"
	"strconv"
)

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func deepEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}
