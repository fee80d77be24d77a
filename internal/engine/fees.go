package engine

// tradeFees models the cost and revenue adjustments of one opportunity.
// The buy leg fills a standing sell order, so no broker fee applies unless
// the scan models one explicitly. The sell leg depends on strategy: selling
// into buy orders pays only sales tax, while listing an undercut sell order
// pays broker fee plus sales tax.
type tradeFees struct {
	buyCostMult     float64 // multiplier on the buy price
	sellRevenueMult float64 // multiplier on the gross sell price
}

func feesFor(strategy SellStrategy, salesTaxPct, brokerFeePct, buyBrokerFeePct float64) tradeFees {
	f := tradeFees{
		buyCostMult: 1 + buyBrokerFeePct/100,
	}
	switch strategy {
	case UndercutSellOrders:
		f.sellRevenueMult = 1 - brokerFeePct/100 - salesTaxPct/100
	default:
		f.sellRevenueMult = 1 - salesTaxPct/100
	}
	if f.sellRevenueMult < 0 {
		f.sellRevenueMult = 0
	}
	return f
}

// netProfitPerUnit applies the fee model to a buy/sell price pair.
func (f tradeFees) netProfitPerUnit(buyPrice, sellPrice float64) float64 {
	return sellPrice*f.sellRevenueMult - buyPrice*f.buyCostMult
}
