package domain

import "time"

// NextPeriodEnd calcula o fim do período de cobrança que começa em start.
//
// Soma um mês (ou um ano) de calendário mantendo hora e fuso. Quando o mês de
// destino não tem o dia de start, o resultado fica no último dia desse mês:
// 31/01 + 1 mês = 29/02 em ano bissexto, 28/02 nos demais; 29/02 + 1 ano = 28/02.
func NextPeriodEnd(start time.Time, interval Interval) (time.Time, error) {
	switch interval {
	case IntervalMonth:
		return addMonthsClamped(start, 1), nil
	case IntervalYear:
		return addMonthsClamped(start, 12), nil
	default:
		return time.Time{}, ErrUnknownInterval
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// Primeiro dia do mês de destino; time.Date normaliza meses > 12.
	first := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Dia 0 do mês seguinte é o último dia de month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
