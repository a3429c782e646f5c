package crawler

import (
	"fmt"

	"github.com/stakewatch/stakewatch/internal/core"
)

// accountFilters builds the backend query expressions scoping one
// account's crawl: outgoing activity, incoming transfers (including to
// a distinct payout address), and for validators the staking events
// keyed on the operator address.
func accountFilters(acc *core.Account) []string {
	filters := []string{
		fmt.Sprintf("message.sender='%s'", acc.Address),
		fmt.Sprintf("transfer.recipient='%s'", acc.Address),
	}

	if acc.RewardAddr != "" && acc.RewardAddr != acc.Address {
		filters = append(filters, fmt.Sprintf("transfer.recipient='%s'", acc.RewardAddr))
	}

	if acc.IsValidator() {
		filters = append(filters,
			fmt.Sprintf("delegate.validator='%s'", acc.ValidatorAddr),
			fmt.Sprintf("redelegate.destination_validator='%s'", acc.ValidatorAddr),
			fmt.Sprintf("unbond.validator='%s'", acc.ValidatorAddr),
		)
	}

	return filters
}
