package reporting

import (
	"fmt"
	"strings"
)

// RenderBalancesCSV renders balance rows as a CSV string.
func RenderBalancesCSV(rows []BalanceRow) string {
	var sb strings.Builder

	sb.WriteString("account,amount,last_update\n")
	for _, b := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d\n", b.Account, b.Amount, b.LastUpdate))
	}

	return sb.String()
}

// RenderVolumesCSV renders lifetime volume rows as a CSV string.
func RenderVolumesCSV(rows []VolumeRow) string {
	var sb strings.Builder

	sb.WriteString("account,pair,as_trader,as_referrer,as_grandparent\n")
	for _, v := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
			v.Account, v.Pair, v.AsTrader, v.AsReferrer, v.AsGrandparent))
	}

	return sb.String()
}
