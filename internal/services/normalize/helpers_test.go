package normalize

import "github.com/tidwall/gjson"

func parse(raw string) gjson.Result {
	return gjson.Parse(raw)
}
