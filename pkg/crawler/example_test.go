package crawler_test

import (
	"encoding/json"
	"fmt"

	"tftcrawler/pkg/crawler"
)

func ExampleDetail_Participants() {
	var detail crawler.Detail
	raw := `{"metadata":{"match_id":"NA1_4123456789","participants":["p1","p2",""]}}`
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(detail.ID())
	fmt.Println(detail.Participants())
	// Output:
	// NA1_4123456789
	// [p1 p2]
}
