package stats

// ACF calculates the sample autocorrelation function for lags 0..maxLag.
// Returns nil for an empty or constant input.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the partial autocorrelation function using the
// Durbin-Levinson algorithm. Index 0 holds 1.
func PACF(values []float64, maxLag int) []float64 {
	acf := ACF(values, maxLag)
	if len(acf) < 2 {
		return nil
	}
	_, pacf := durbinLevinson(acf, len(acf)-1)
	return pacf
}

// YuleWalker estimates AR(order) coefficients on lags step, 2*step, ...
// from the sample autocorrelations. step = 1 gives the ordinary estimate;
// step = m gives a seasonal AR start. Returns zeros when the autocorrelations
// are unavailable.
func YuleWalker(values []float64, order, step int) []float64 {
	if order <= 0 {
		return nil
	}
	acf := ACF(values, order*step)
	if acf == nil || len(acf) <= order*step {
		return make([]float64, order)
	}

	r := make([]float64, order+1)
	for k := range r {
		r[k] = acf[k*step]
	}
	phi, _ := durbinLevinson(r, order)
	return phi
}

// durbinLevinson solves the Yule-Walker equations for autocorrelations r.
// It returns the AR(order) coefficients and the partial autocorrelations.
func durbinLevinson(r []float64, order int) (phi, pacf []float64) {
	pacf = make([]float64, order+1)
	pacf[0] = 1.0

	prev := make([]float64, order+1)
	cur := make([]float64, order+1)

	prev[1] = r[1]
	pacf[1] = r[1]

	for k := 2; k <= order; k++ {
		num := r[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * r[k-j]
			den -= prev[j] * r[j]
		}

		if den == 0 {
			break
		}

		cur[k] = num / den
		pacf[k] = cur[k]

		for j := 1; j < k; j++ {
			cur[j] = prev[j] - cur[k]*prev[k-j]
		}
		prev, cur = cur, prev
	}

	return append([]float64(nil), prev[1:]...), pacf
}
